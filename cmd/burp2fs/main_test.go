package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/burp2fs/internal/extract/domain"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		items     string
		config    string
		save      bool
		overrides map[string]any
	}{
		{
			name:      "items only",
			args:      []string{"--items", "export.xml"},
			items:     "export.xml",
			config:    "config.json",
			overrides: map[string]any{},
		},
		{
			name:   "shorthands",
			args:   []string{"-i", "export.xml", "-c", "scan.json", "-o", "dump", "-s", "-r"},
			items:  "export.xml",
			config: "scan.json",
			save:   true,
			overrides: map[string]any{
				"output_dir": "dump",
				"use_regex":  true,
			},
		},
		{
			name: "list flags",
			args: []string{
				"-i", "export.xml",
				"--in-scope", " example.com , test.org,,",
				"--out-scope=ads.example.com",
				"--unwanted-ext", ".png,.css",
				"--unwanted-types", "image/",
			},
			items:  "export.xml",
			config: "config.json",
			overrides: map[string]any{
				"in_scope_domains":       []string{"example.com", "test.org"},
				"out_scope_domains":      []string{"ads.example.com"},
				"unwanted_extensions":    []string{".png", ".css"},
				"unwanted_content_types": []string{"image/"},
			},
		},
		{
			name:   "separators only clears the list",
			args:   []string{"-i", "export.xml", "--in-scope", " , "},
			items:  "export.xml",
			config: "config.json",
			overrides: map[string]any{
				"in_scope_domains": []string{},
			},
		},
		{
			name:      "empty values leave config alone",
			args:      []string{"-i", "export.xml", "--in-scope", "", "-o", ""},
			items:     "export.xml",
			config:    "config.json",
			overrides: map[string]any{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseFlags(tt.args, &bytes.Buffer{})
			require.NoError(t, err)
			assert.Equal(t, tt.items, opts.items)
			assert.Equal(t, tt.config, opts.configPath)
			assert.Equal(t, tt.save, opts.saveConfig)
			assert.Equal(t, tt.overrides, opts.overrides)
		})
	}
}

func TestParseFlags_Errors(t *testing.T) {
	var out bytes.Buffer
	_, err := parseFlags([]string{"-o", "dump"}, &out)
	assert.EqualError(t, err, "flag --items is required")

	_, err = parseFlags([]string{"-i", "x.xml", "--bogus"}, &out)
	assert.Error(t, err)

	_, err = parseFlags([]string{"--help"}, &out)
	assert.True(t, errors.Is(err, pflag.ErrHelp))
	assert.Contains(t, out.String(), "--unwanted-types")
}

func TestParseListArg(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseListArg("a,b"))
	assert.Equal(t, []string{"a", "b"}, parseListArg(" a , ,b ,"))
	assert.Equal(t, []string{}, parseListArg(","))
}

func TestProgressPrinter(t *testing.T) {
	var out bytes.Buffer
	p := progressPrinter(&out)
	p(domain.ItemResult{Outcome: domain.OutcomeWritten, Path: "output/a.b/x.txt"})
	p(domain.ItemResult{Outcome: domain.OutcomeSkippedScope, URL: "http://c.d/"})
	p(domain.ItemResult{Outcome: domain.OutcomeFailed, URL: "http://a.b/y", Err: errors.New("boom")})

	assert.Equal(t, "Saved response to: output/a.b/x.txt\nError processing item with URL http://a.b/y: boom\n", out.String())
}

func TestPrintSummary(t *testing.T) {
	s := domain.NewRunSummary()
	s.Add(domain.ItemResult{Outcome: domain.OutcomeWritten, Domain: "example.com", Bytes: 10})
	s.Add(domain.ItemResult{Outcome: domain.OutcomeWritten, Domain: "example.com", Bytes: 5, Overwrote: true})
	s.Add(domain.ItemResult{Outcome: domain.OutcomeWritten, Domain: "a.org", Bytes: 1})
	s.Add(domain.ItemResult{Outcome: domain.OutcomeSkippedScope})
	s.Add(domain.ItemResult{Outcome: domain.OutcomeFailed})

	var out bytes.Buffer
	printSummary(&out, s)

	got := out.String()
	assert.Contains(t, got, "Processed 5 items: 3 written, 1 out of scope, 0 unwanted content, 0 without response, 1 failed\n")
	assert.Contains(t, got, "Bytes written: 16\n")
	assert.Contains(t, got, "Overwritten files: 1")
	assert.Contains(t, got, "Files per domain:\n  a.org: 1\n  example.com: 2\n")
}
