package rust

import "testing"

func TestSnakeCase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"getUserName", "get_user_name"},
		{"parseHTTPRequest", "parse_http_request"},
		{"XMLParser", "xml_parser"},
		{"value2", "value2"},
		{"_count", "_count"},
		{"type", "r#type"},
		{"self", "self_"},
		{"already_snake", "already_snake"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := snakeCase(tt.input); got != tt.want {
				t.Errorf("snakeCase(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestScreamingCase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"maxRetries", "MAX_RETRIES"},
		{"API_URL", "API_URL"},
		{"timeout", "TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := screamingCase(tt.input); got != tt.want {
				t.Errorf("screamingCase(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPascalCase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"IN_PROGRESS", "InProgress"},
		{"red", "Red"},
		{"Red", "Red"},
		{"darkBlue", "DarkBlue"},
		{"HTTP", "Http"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := pascalCase(tt.input); got != tt.want {
				t.Errorf("pascalCase(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"point", "Point"},
		{"ns.Point", "Point"},
		{"Self", "Self_"},
		{"my-type", "My_type"},
		{"Box", "Box_"},
		{"result", "Result_"},
		{"Boxed", "Boxed"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := typeName(tt.input); got != tt.want {
				t.Errorf("typeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "_"},
		{"123abc", "_123abc"},
		{"a-b", "a_b"},
		{"café", "café"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := sanitize(tt.input); got != tt.want {
				t.Errorf("sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
