package hydrate

import (
	"errors"
	"strings"
	"testing"
)

type mapSource struct {
	values map[string]any
	nested map[string]*mapSource
	fail   map[string]error
}

func (s *mapSource) Resolve(name string) (any, Source, bool, error) {
	if err := s.fail[name]; err != nil {
		return nil, nil, false, err
	}
	if child, ok := s.nested[name]; ok {
		return nil, child, true, nil
	}
	value, ok := s.values[name]
	return value, nil, ok, nil
}

type webServer struct {
	Port int
	URL  string
}

type appSettings struct {
	Title     string
	Retries   int64
	WebServer webServer
	Admin     *webServer
	Ignored   string `props:"-"`
	internal  string
}

func newAppSource() *mapSource {
	return &mapSource{
		values: map[string]any{
			"Title":   "My Super App",
			"Retries": 3,
		},
		nested: map[string]*mapSource{
			"WebServer": {values: map[string]any{"Port": 8080, "URL": "http://localhost:8080/myApp"}},
			"Admin":     {values: map[string]any{"Port": 9090}},
		},
	}
}

func TestDecodeFillsLeafAndNestedFields(t *testing.T) {
	decoder := NewDecoder[appSettings]()
	result, err := decoder.Decode(Context{Schema: "app"}, newAppSource())
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if result.Title != "My Super App" {
		t.Fatalf("expected title, got %q", result.Title)
	}
	if result.Retries != 3 {
		t.Fatalf("expected int to convert into int64 field, got %d", result.Retries)
	}
	if result.WebServer.Port != 8080 || result.WebServer.URL != "http://localhost:8080/myApp" {
		t.Fatalf("unexpected nested struct %+v", result.WebServer)
	}
	if result.Admin == nil || result.Admin.Port != 9090 || result.Admin.URL != "" {
		t.Fatalf("expected pointer nested struct to be allocated, got %+v", result.Admin)
	}
}

func TestDecodeUnsetFieldsAreZeroedUnlessPreserved(t *testing.T) {
	src := &mapSource{values: map[string]any{}}

	target := appSettings{Title: "keep"}
	if err := NewDecoder[appSettings]().DecodeInto(Context{}, src, &target); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.Title != "" {
		t.Fatalf("expected unset field to be zeroed, got %q", target.Title)
	}

	target = appSettings{Title: "keep", Ignored: "x"}
	if err := NewDecoder[appSettings](WithUnsetPreserved[appSettings]()).DecodeInto(Context{}, src, &target); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.Title != "keep" {
		t.Fatalf("expected preserved field, got %q", target.Title)
	}
	if target.Ignored != "x" {
		t.Fatalf("ignored field must not be touched")
	}
}

func TestDecodeWrapsSourceErrorsWithPath(t *testing.T) {
	boom := errors.New("boom")
	src := newAppSource()
	src.nested["WebServer"].fail = map[string]error{"Port": boom}

	_, err := NewDecoder[appSettings]().Decode(Context{Schema: "app"}, src)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
	if !strings.Contains(err.Error(), `"WebServer.Port"`) {
		t.Fatalf("expected field path in error, got %v", err)
	}
}

func TestDecodeRejectsIncompatibleValues(t *testing.T) {
	src := &mapSource{values: map[string]any{"Title": []string{"a"}}}
	if _, err := NewDecoder[appSettings]().Decode(Context{}, src); err == nil {
		t.Fatalf("expected assignment error")
	}
}

func TestDecodeHooks(t *testing.T) {
	veto := errors.New("veto")
	_, err := NewDecoder[appSettings](WithPreHook[appSettings](func(Context) error { return veto })).Decode(Context{Schema: "app"}, newAppSource())
	if !errors.Is(err, veto) {
		t.Fatalf("expected pre-hook error, got %v", err)
	}

	result, err := NewDecoder[appSettings](WithPostHook[appSettings](func(_ Context, s *appSettings) error {
		s.Title = strings.ToUpper(s.Title)
		return nil
	})).Decode(Context{Schema: "app"}, newAppSource())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Title != "MY SUPER APP" {
		t.Fatalf("expected post-hook to adjust result, got %q", result.Title)
	}
}

func TestDecodeNilSource(t *testing.T) {
	if _, err := NewDecoder[appSettings]().Decode(Context{Schema: "app"}, nil); err == nil {
		t.Fatalf("expected error for nil source")
	}
}
