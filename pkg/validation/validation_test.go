package validation

import "testing"

func TestValidateEmail(t *testing.T) {
	for _, ok := range []string{"jfk@example.org", " Nixon@Example.org "} {
		if !ValidateEmail(ok) {
			t.Errorf("expected %q valid", ok)
		}
	}
	for _, bad := range []string{"", "jfk", "jfk@example", "@example.org"} {
		if ValidateEmail(bad) {
			t.Errorf("expected %q invalid", bad)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if ValidatePassword("abc") {
		t.Fatal("expected short password to fail")
	}
	if !ValidatePassword("john") {
		t.Fatal("expected four characters to pass")
	}
}

func TestParseDate(t *testing.T) {
	d, ok := ParseDate("2023-07-04")
	if !ok || d.Year() != 2023 || d.Month() != 7 || d.Day() != 4 {
		t.Fatalf("unexpected parse result %v %v", d, ok)
	}
	if _, ok := ParseDate("07/04/2023"); ok {
		t.Fatal("expected other layouts to be rejected")
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  Sun\x00set "); got != "Sunset" {
		t.Fatalf("got %q", got)
	}
}
