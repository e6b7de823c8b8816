package ai

import "testing"

func TestSalvageJSON(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
		check  func(t *testing.T, res string)
	}{
		{
			name:   "clean object",
			input:  `{"category":"warfare","confidence":0.9}`,
			wantOK: true,
			check: func(t *testing.T, res string) {
				if res != `{"category":"warfare","confidence":0.9}` {
					t.Errorf("unexpected payload: %s", res)
				}
			},
		},
		{
			name:   "object wrapped in prose",
			input:  `blah {"a":1} blah`,
			wantOK: true,
			check: func(t *testing.T, res string) {
				if res != `{"a":1}` {
					t.Errorf("unexpected payload: %s", res)
				}
			},
		},
		{
			name:   "array with trailing prose",
			input:  `[1,2,3] trailing`,
			wantOK: true,
			check: func(t *testing.T, res string) {
				if res != `[1,2,3]` {
					t.Errorf("unexpected payload: %s", res)
				}
			},
		},
		{
			name:   "object with array values wrapped in prose",
			input:  `前言 {"entities":[{"label":"甲"},{"label":"乙"}]} 后记`,
			wantOK: true,
			check: func(t *testing.T, res string) {
				if res != `{"entities":[{"label":"甲"},{"label":"乙"}]}` {
					t.Errorf("unexpected payload: %s", res)
				}
			},
		},
		{
			name:   "array of objects wrapped in prose",
			input:  `结果: [{"label":"甲"},{"label":"乙"}] 完`,
			wantOK: true,
			check: func(t *testing.T, res string) {
				if res != `[{"label":"甲"},{"label":"乙"}]` {
					t.Errorf("unexpected payload: %s", res)
				}
			},
		},
		{
			name:   "markdown fenced object",
			input:  "```json\n{\"entities\":[{\"label\":\"欧阳修\"}]}\n```",
			wantOK: true,
		},
		{
			name:   "malformed object gets repaired",
			input:  `{category: "travelogue", confidence: 0.8,}`,
			wantOK: true,
		},
		{
			name:   "no json at all",
			input:  `no json here`,
			wantOK: false,
		},
		{
			name:   "empty input",
			input:  "",
			wantOK: false,
		},
		{
			name:   "bare scalar is not a payload",
			input:  `42`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := SalvageJSON(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("SalvageJSON(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if tt.check != nil && ok {
				tt.check(t, res.Raw)
			}
		})
	}
}

func TestSalvageJSONPathAccess(t *testing.T) {
	res, ok := SalvageJSON(`模型输出如下: {"entities":[{"label":"滁州","category":"LOCATION"}]}`)
	if !ok {
		t.Fatal("expected salvage to succeed")
	}
	if got := res.Get("entities.0.label").String(); got != "滁州" {
		t.Errorf("entities.0.label = %q, want 滁州", got)
	}
}
