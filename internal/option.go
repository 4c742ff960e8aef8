package internal

import (
	"net/http"
	"os"
	"sync"

	"cloud.google.com/go/compute/metadata"
	"golang.org/x/oauth2"
	"google.golang.org/grpc"
)

// ClientSettings holds the options passed to a client constructor.
type ClientSettings struct {
	ProjectID string

	Scopes          []string
	TokenSource     oauth2.TokenSource
	CredentialsFile string // if set, Token Source is ignored.
	HTTPClient      *http.Client
	Endpoint        string
	GRPCConn        *grpc.ClientConn
}

// projectIDEnvNames are consulted in order by GetProjectID.
var projectIDEnvNames = []string{
	"DATASTORE_DATASET",
	"DATASTORE_PROJECT_ID",
	"GOOGLE_CLOUD_PROJECT",
	"PROJECT_ID",
}

// GetProjectID returns the project id from the environment, or "".
func GetProjectID() string {
	for _, name := range projectIDEnvNames {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

var (
	detectOnce sync.Once
	detectedID string
)

// DetectProjectID returns the project id from the environment, or from the
// GCE metadata server when the environment has none.
// The metadata server is asked at most once per process.
func DetectProjectID() string {
	if id := GetProjectID(); id != "" {
		return id
	}
	detectOnce.Do(func() {
		if !metadata.OnGCE() {
			return
		}
		id, err := metadata.ProjectID()
		if err != nil {
			// don't check again even if it was failed...
			return
		}
		detectedID = id
	})
	return detectedID
}
