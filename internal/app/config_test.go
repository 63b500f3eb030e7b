package app

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfigMissingAnswer(t *testing.T) {
	tests := []struct {
		name    string
		set     bool
		value   string
		wantNil bool
		want    string
	}{
		{name: "absent uses default", set: false, want: defaultMissingAnswer},
		{name: "custom value", set: true, value: "Tidak dijawab", want: "Tidak dijawab"},
		{name: "empty keeps empty", set: true, value: "", want: ""},
		{name: "dash unsets", set: true, value: "-", wantNil: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.set {
				t.Setenv("USER_DID_NOT_ANSWER", tc.value)
			} else {
				t.Setenv("USER_DID_NOT_ANSWER", "")
				_ = os.Unsetenv("USER_DID_NOT_ANSWER")
			}

			cfg := LoadConfig()
			if tc.wantNil {
				if cfg.MissingAnswer != nil {
					t.Fatalf("expected unset placeholder, got %q", *cfg.MissingAnswer)
				}
				return
			}
			if cfg.MissingAnswer == nil || *cfg.MissingAnswer != tc.want {
				t.Fatalf("unexpected placeholder: %v", cfg.MissingAnswer)
			}
		})
	}
}

func TestLoadConfigCSVFlags(t *testing.T) {
	t.Setenv("EXCEL_COMPATIBLE_CSV", "yes")
	t.Setenv("CSV_ANONYMOUS_LABEL", "Anonim")
	t.Setenv("DB_CONN_MAX_LIFETIME_MINUTES", "5")

	cfg := LoadConfig()
	csv := cfg.CSV()
	if !csv.ExcelCompatible {
		t.Fatalf("expected excel compatible csv")
	}
	if csv.AnonymousLabel != "Anonim" || csv.UserHeader != "user" {
		t.Fatalf("unexpected labels: %+v", csv)
	}
	if got := cfg.Postgres().ConnMaxLifetime; got != 5*time.Minute {
		t.Fatalf("expected 5m lifetime, got %s", got)
	}
}

func TestBoolOrDefault(t *testing.T) {
	t.Setenv("X_FLAG", "maybe")
	if !boolOrDefault("X_FLAG", true) {
		t.Fatalf("unknown value should fall back")
	}
	t.Setenv("X_FLAG", "off")
	if boolOrDefault("X_FLAG", true) {
		t.Fatalf("off should be false")
	}
}
