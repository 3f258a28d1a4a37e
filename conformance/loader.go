package conformance

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// TestPath is the directory holding the suites, relative to this package
const TestPath = "testdata"

// LoadedTest represents a test with its source file path
type LoadedTest struct {
	File  string
	Suite *TestSuite
	Test  TestCase
}

// LoadAllTests walks dir and loads every test case of every .yaml suite
func LoadAllTests(dir string) ([]LoadedTest, error) {
	var loaded []LoadedTest
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".yaml" {
			return nil
		}

		suite, err := loadTestFile(path)
		if err != nil {
			return err
		}
		relPath, _ := filepath.Rel(dir, path)
		for _, test := range suite.Tests {
			loaded = append(loaded, LoadedTest{File: relPath, Suite: suite, Test: test})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loaded, nil
}

// loadTestFile parses a single YAML suite
func loadTestFile(path string) (*TestSuite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var suite TestSuite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if suite.Name == "" {
		suite.Name = filepath.Base(path)
	}
	for i, test := range suite.Tests {
		if test.Name == "" {
			return nil, fmt.Errorf("%s: test %d has no name", path, i+1)
		}
		if test.Code == "" {
			return nil, fmt.Errorf("%s: test %s has no code", path, test.Name)
		}
		if test.Expect.Empty() {
			return nil, fmt.Errorf("%s: test %s has no expectation", path, test.Name)
		}
		if _, ok := errorKind(test.Expect.Error); test.Expect.Error != "" && !ok {
			return nil, fmt.Errorf("%s: test %s expects unknown error %s", path, test.Name, test.Expect.Error)
		}
	}
	return &suite, nil
}
