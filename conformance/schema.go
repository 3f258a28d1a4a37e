package conformance

// TestSuite represents a complete YAML test file
type TestSuite struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Files       FileSet    `yaml:"files,omitempty"` // modules importable by every test
	Tests       []TestCase `yaml:"tests"`
}

// FileSet maps a file name to its contents
type FileSet map[string]string

// TestCase represents a single test within a suite
type TestCase struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Skip        interface{} `yaml:"skip,omitempty"` // bool or string
	Code        string      `yaml:"code"`
	Files       FileSet     `yaml:"files,omitempty"`
	NoRoundTrip bool        `yaml:"no_round_trip,omitempty"`
	Expect      Expectation `yaml:"expect"`
}

// Expectation defines what result is expected from a test
type Expectation struct {
	Output   *string  `yaml:"output,omitempty"`   // exact printed output
	Error    string   `yaml:"error,omitempty"`    // error kind name, e.g. KeyError
	Message  string   `yaml:"message,omitempty"`  // substring of the error message
	Line     int      `yaml:"line,omitempty"`     // line of the error
	Contains []string `yaml:"contains,omitempty"` // substrings of the output
}

// Empty reports whether the expectation checks nothing
func (e Expectation) Empty() bool {
	return e.Output == nil && e.Error == "" && len(e.Contains) == 0
}

// IsSkipped returns true if this test should be skipped
func (tc *TestCase) IsSkipped() (bool, string) {
	switch v := tc.Skip.(type) {
	case bool:
		if v {
			return true, "skipped"
		}
	case string:
		return true, v
	}
	return false, ""
}
