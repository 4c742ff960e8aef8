package dsmemcache

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// fakeServer speaks the subset of the memcached text protocol the client
// uses: set, gets, delete and flush_all.
type fakeServer struct {
	lis net.Listener

	m     sync.Mutex
	items map[string][]byte
}

func startFakeServer(t *testing.T) *fakeServer {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	s := &fakeServer{lis: lis, items: make(map[string][]byte)}
	go s.serve()
	t.Cleanup(func() { lis.Close() })

	return s
}

func (s *fakeServer) Addr() string {
	return s.lis.Addr().String()
}

func (s *fakeServer) keys() []string {
	s.m.Lock()
	defer s.m.Unlock()

	list := make([]string, 0, len(s.items))
	for k := range s.items {
		list = append(list, k)
	}
	sort.Strings(list)
	return list
}

func (s *fakeServer) serve() {
	for {
		conn, err := s.lis.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *fakeServer) handle(conn net.Conn) {
	defer conn.Close()

	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return
		}

		switch fields[0] {
		case "set":
			// set <key> <flags> <exptime> <bytes>
			if len(fields) < 5 {
				return
			}
			n, err := strconv.Atoi(fields[4])
			if err != nil {
				return
			}
			buf := make([]byte, n+2)
			if _, err := io.ReadFull(r, buf); err != nil {
				return
			}
			s.m.Lock()
			s.items[fields[1]] = buf[:n]
			s.m.Unlock()
			w.WriteString("STORED\r\n")
		case "get", "gets":
			s.m.Lock()
			for _, k := range fields[1:] {
				if v, ok := s.items[k]; ok {
					fmt.Fprintf(w, "VALUE %s 0 %d 1\r\n", k, len(v))
					w.Write(v)
					w.WriteString("\r\n")
				}
			}
			s.m.Unlock()
			w.WriteString("END\r\n")
		case "delete":
			s.m.Lock()
			_, ok := s.items[fields[1]]
			delete(s.items, fields[1])
			s.m.Unlock()
			if ok {
				w.WriteString("DELETED\r\n")
			} else {
				w.WriteString("NOT_FOUND\r\n")
			}
		case "flush_all":
			s.m.Lock()
			s.items = make(map[string][]byte)
			s.m.Unlock()
			w.WriteString("OK\r\n")
		default:
			w.WriteString("ERROR\r\n")
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}
