package template

import (
	"context"
	"errors"
	"testing"
)

func echoHandler(text string) HandlerFunc {
	return func(ctx context.Context, args Arguments, deps Dependencies) (string, error) {
		return text, nil
	}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	r.Register(Extension{Namespace: "ns", Operation: "op", Handler: echoHandler("one")})

	ext, ok := r.Lookup("ns", "op")
	if !ok {
		t.Fatal("expected extension to be found")
	}
	if ext.Key() != "ns:op" {
		t.Errorf("unexpected key %q", ext.Key())
	}

	if _, ok := r.Lookup("ns", "missing"); ok {
		t.Error("expected lookup miss")
	}
}

func TestRegistry_LastWriteWins(t *testing.T) {
	r := NewRegistry()
	r.Register(Extension{Namespace: "ns", Operation: "op", Handler: echoHandler("first")})
	r.Register(Extension{Namespace: "ns", Operation: "op", Handler: echoHandler("second")})

	ext, _ := r.Lookup("ns", "op")
	out, err := ext.Handler(context.Background(), Arguments{}, nil)
	if err != nil || out != "second" {
		t.Errorf("expected overwrite to win, got %q err=%v", out, err)
	}
}

func TestRegistry_ResolveDependencies(t *testing.T) {
	r := NewRegistry()
	ext := Extension{Namespace: "ns", Operation: "op", Requires: []string{DepMemory}, Handler: echoHandler("")}
	r.Register(ext)

	available := Dependencies{DepMemory: struct{}{}, DepAgent: struct{}{}}
	deps, err := r.ResolveDependencies(ext, available)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := deps[DepMemory]; !ok {
		t.Error("expected memory dependency in resolved set")
	}
	if _, ok := deps[DepAgent]; ok {
		t.Error("undeclared dependency should not be passed through")
	}
}

func TestRegistry_MissingDependency(t *testing.T) {
	r := NewRegistry()
	ext := Extension{Namespace: "ns", Operation: "op", Requires: []string{DepAgent}, Handler: echoHandler("")}
	r.Register(ext)

	_, err := r.ResolveDependencies(ext, Dependencies{})
	if err == nil {
		t.Fatal("expected missing dependency error")
	}
	var missing *MissingDependencyError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingDependencyError, got %T", err)
	}
	if missing.Dependency != DepAgent || missing.Extension != "ns:op" {
		t.Errorf("error should name extension and dependency: %+v", missing)
	}
}

func TestDependencies_Clone(t *testing.T) {
	d := Dependencies{"a": 1}
	c := d.Clone()
	c["b"] = 2
	if _, ok := d["b"]; ok {
		t.Error("clone mutation leaked into original")
	}
}
