package props

import (
	"errors"
	"testing"
	"time"
)

var errNoPort = errors.New("port must be set")

type validatedServer struct {
	Host string `default:"localhost"`
	Port int
}

func (s validatedServer) Validate() error {
	if s.Port == 0 {
		return errNoPort
	}
	return nil
}

func TestDecodeHydratesNestedStructs(t *testing.T) {
	view := New(MustSchemaOf[taggedApp](), NewStore(PropertiesLayer("file", map[string]string{
		"hosts":    "a;b",
		"started":  "2024-05-01T12:00:00Z",
		"password": "s3cret",
	})))

	app, err := Decode[taggedApp](view)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if app.Title != "My Super App" {
		t.Fatalf("unexpected title %q", app.Title)
	}
	server := app.WebServer
	if server.Port != 8080 || server.Timeout != 5*time.Second {
		t.Fatalf("unexpected server %+v", server)
	}
	if server.URL == nil || server.URL.String() != "http://localhost:8080/myApp" {
		t.Fatalf("unexpected url %v", server.URL)
	}
	if len(server.Hosts) != 2 || server.Hosts[1] != "b" {
		t.Fatalf("unexpected hosts %v", server.Hosts)
	}
	if server.Password != "s3cret" {
		t.Fatalf("unexpected password %q", server.Password)
	}
	if app.Started.Year() != 2024 {
		t.Fatalf("unexpected start %v", app.Started)
	}
	if app.Admin == nil || app.Admin.Port != 8080 {
		t.Fatalf("expected nested pointer to be allocated, got %+v", app.Admin)
	}
}

func TestDecodeStopsAtRecursiveSchemas(t *testing.T) {
	view := New(MustSchemaOf[treeNode](), NewStore(PropertiesLayer("file", map[string]string{"name": "root"})))
	node, err := Decode[treeNode](view)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if node.Name != "root" || node.Child != nil {
		t.Fatalf("unexpected node %+v", node)
	}
}

func TestDecodeSurfacesConversionErrors(t *testing.T) {
	view := New(MustSchemaOf[validatedServer](), NewStore(PropertiesLayer("file", map[string]string{"port": "http"})))
	if _, err := Decode[validatedServer](view); !errors.Is(err, ErrConversion) {
		t.Fatalf("expected conversion error, got %v", err)
	}
}

func TestLoadValidates(t *testing.T) {
	_, err := Load[validatedServer](nil)
	if !errors.Is(err, errNoPort) {
		t.Fatalf("expected validation error, got %v", err)
	}

	server, err := Load[validatedServer]([]Layer{PropertiesLayer("file", map[string]string{"port": "9000"})})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if server.Host != "localhost" || server.Port != 9000 {
		t.Fatalf("unexpected server %+v", server)
	}
}
