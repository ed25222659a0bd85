package query

import "testing"

func TestEscapeLikePattern(t *testing.T) {
	input := "%_\\"
	expected := `\%\_\\`

	result := escapeLikePattern(input)
	if result != expected {
		t.Fatalf("expected escaped pattern %q, got %q", expected, result)
	}
}

func TestBuildContainsSQL_Escapes(t *testing.T) {
	sql, args := buildContainsSQL(`"search"`, "50%_Off")
	expectedSQL := `LOWER("search") LIKE ? ESCAPE '\'`
	if sql != expectedSQL {
		t.Fatalf("expected SQL %q, got %q", expectedSQL, sql)
	}

	if len(args) != 1 {
		t.Fatalf("expected 1 arg, got %d", len(args))
	}

	expectedArg := "%50\\%\\_off%"
	if args[0] != expectedArg {
		t.Fatalf("expected arg %q, got %q", expectedArg, args[0])
	}
}
