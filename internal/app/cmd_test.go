package app

import (
	"testing"
)

func TestParseCommand_DefaultsToIdentity(t *testing.T) {
	cmd := ParseCommand([]string{})
	if cmd != CommandIdentity {
		t.Errorf("ParseCommand([]) = %q, want %q", cmd, CommandIdentity)
	}
}

func TestParseCommand_KnownCommands(t *testing.T) {
	tests := []struct {
		arg  string
		want Command
	}{
		{"identity", CommandIdentity},
		{"catalog", CommandCatalog},
		{"cart", CommandCart},
		{"order", CommandOrder},
		{"payment", CommandPayment},
		{"notification", CommandNotification},
		{"seller", CommandSeller},
		{"agent", CommandAgent},
		{"migrate", CommandMigrate},
		{"healthcheck", CommandHealthcheck},
	}

	for _, tt := range tests {
		if got := ParseCommand([]string{tt.arg}); got != tt.want {
			t.Errorf("ParseCommand([%s]) = %q, want %q", tt.arg, got, tt.want)
		}
	}
}

func TestParseCommand_UnknownDefaultsToIdentity(t *testing.T) {
	cmd := ParseCommand([]string{"unknown"})
	if cmd != CommandIdentity {
		t.Errorf("ParseCommand([unknown]) = %q, want %q", cmd, CommandIdentity)
	}
}

func TestParseCommand_IgnoresExtraArgs(t *testing.T) {
	cmd := ParseCommand([]string{"catalog", "--flag", "value"})
	if cmd != CommandCatalog {
		t.Errorf("ParseCommand([catalog --flag value]) = %q, want %q", cmd, CommandCatalog)
	}
}
