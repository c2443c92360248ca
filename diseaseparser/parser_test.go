package diseaseparser

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{
			name:     "json array",
			raw:      `["pneumonia", "pleural effusion"]`,
			expected: []string{"pneumonia", "pleural effusion"},
		},
		{
			name:     "json array in code fence",
			raw:      "```json\n[\"pneumonia\", \"pleural effusion\"]\n```",
			expected: []string{"pneumonia", "pleural effusion"},
		},
		{
			name:     "python list in python fence",
			raw:      "```python\n['cardiomegaly', 'atelectasis']\n```",
			expected: []string{"cardiomegaly", "atelectasis"},
		},
		{
			name:     "language tag without fence",
			raw:      "python\n['cardiomegaly']",
			expected: []string{"cardiomegaly"},
		},
		{
			name:     "quoted whole answer",
			raw:      `"['pneumothorax', 'rib fracture']"`,
			expected: []string{"pneumothorax", "rib fracture"},
		},
		{
			name:     "single quoted with escaped apostrophe",
			raw:      `['Crohn\'s disease', "Paget's disease"]`,
			expected: []string{"Crohn's disease", "Paget's disease"},
		},
		{
			name:     "literal list with trailing comma",
			raw:      `['nodule', 'mass',]`,
			expected: []string{"nodule", "mass"},
		},
		{
			name:     "elements keep inner text but lose stray quotes",
			raw:      `["'emphysema'", " \"fibrosis\" "]`,
			expected: []string{"emphysema", "fibrosis"},
		},
		{
			name:     "json non string elements",
			raw:      `["hernia", 3, null]`,
			expected: []string{"hernia", "3"},
		},
		{
			name:     "empty json array",
			raw:      "[]",
			expected: []string{},
		},
		{
			name:     "comma separated plain text",
			raw:      "pneumonia, pleural effusion,  cardiomegaly ",
			expected: []string{"pneumonia", "pleural effusion", "cardiomegaly"},
		},
		{
			name:     "unquoted bracketed list",
			raw:      "[pneumonia, pleural effusion]",
			expected: []string{"pneumonia", "pleural effusion"},
		},
		{
			name:     "comma split drops empty pieces",
			raw:      "pneumonia,, ,effusion,",
			expected: []string{"pneumonia", "effusion"},
		},
		{
			name:     "single word",
			raw:      "Pneumonia",
			expected: []string{"Pneumonia"},
		},
		{
			name:     "fenced block after chatter",
			raw:      "Here are the findings:\n```json\n[\"pneumonia\"]\n```\nLet me know.",
			expected: []string{"pneumonia"},
		},
		{
			name:     "separators only are returned as one element",
			raw:      "[ , , ]",
			expected: []string{", ,"},
		},
		{
			name:     "bare commas",
			raw:      ",,,",
			expected: []string{",,,"},
		},
		{
			name:     "json null is not a list",
			raw:      "null",
			expected: []string{"null"},
		},
		{
			name:     "json list of null",
			raw:      "[null]",
			expected: []string{},
		},
		{
			name:     "empty",
			raw:      "",
			expected: []string{},
		},
		{
			name:     "whitespace",
			raw:      "   ",
			expected: []string{},
		},
		{
			name:     "empty fence",
			raw:      "```\n```",
			expected: []string{},
		},
		{
			name:     "leading word matching a short tag is kept",
			raw:      "Text findings: pneumonia",
			expected: []string{"Text findings: pneumonia"},
		},
		{
			name:     "py tag on its own line",
			raw:      "py\n['effusion']",
			expected: []string{"effusion"},
		},
		{
			name:     "json tag touching the list",
			raw:      "json[\"effusion\"]",
			expected: []string{"effusion"},
		},
		{
			name:     "python tag followed by a space",
			raw:      "python ['atelectasis']",
			expected: []string{"atelectasis"},
		},
		{
			name:     "word starting like a tag is kept",
			raw:      "textiloma",
			expected: []string{"textiloma"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if got == nil {
				t.Fatal("Parse returned nil")
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Parse(%q) = %#v, want %#v", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestParseCommaSegmentsCount(t *testing.T) {
	inputs := map[string]int{
		"a, b":             2,
		"a, b, c, d":       4,
		"mass,nodule,cyst": 3,
	}

	for raw, n := range inputs {
		if got := Parse(raw); len(got) != n {
			t.Errorf("Parse(%q) returned %d names, want %d", raw, len(got), n)
		}
	}
}

func TestParseLiteralListRejectsMalformed(t *testing.T) {
	malformed := []string{
		"['unterminated]",
		"['a' 'b']",
		"[,'a']",
		"['a', b]",
	}

	for _, s := range malformed {
		if _, ok := parseLiteralList(s); ok {
			t.Errorf("parseLiteralList(%q) should fail", s)
		}
	}
}

func TestParseNeverPanics(t *testing.T) {
	inputs := []string{"[", "]", "'", "\"", "```", "[\"", "['\\", "python", "json[", "\x00\xff"}
	for _, s := range inputs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Parse(%q) panicked: %v", s, r)
				}
			}()
			_ = Parse(s)
		}()
	}
}
