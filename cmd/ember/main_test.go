package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"ember/db"
	"ember/parser"
)

func TestSplitFilters(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"init*", []string{"init*"}},
		{"a, b ,c", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		if got := splitFilters(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitFilters(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoadProgram(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "main.em")
	if err := os.WriteFile(script, []byte("print 1"), 0644); err != nil {
		t.Fatal(err)
	}
	prog, err := parser.ParseString("print 2", "saved.em")
	if err != nil {
		t.Fatal(err)
	}
	saved := filepath.Join(dir, "saved.emp")
	if err := db.SaveProgram(saved, prog); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		code, load string
		args       []string
		wantSource string
	}{
		{"command line", "print 3", "", nil, "<command line>"},
		{"serialized", "", saved, nil, "saved.em"},
		{"script", "", "", []string{script}, script},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := loadProgram(tt.code, tt.load, tt.args)
			if err != nil {
				t.Fatalf("loadProgram() error = %v", err)
			}
			if got.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", got.Source, tt.wantSource)
			}
		})
	}

	if got, err := loadProgram("", "", nil); got != nil || err != nil {
		t.Errorf("loadProgram() with nothing = %v, %v", got, err)
	}
	if _, err := loadProgram("print (", "", nil); err == nil {
		t.Error("bad code parsed")
	}
}
