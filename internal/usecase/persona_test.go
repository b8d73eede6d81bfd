package usecase

import (
	"strings"
	"testing"
)

func TestPersonaGenerator_Generate(t *testing.T) {
	pg := NewPersonaGenerator()

	// Test 1: Basic Generation
	user1 := pg.Generate("conn-1")
	if user1.Name == "" {
		t.Error("Expected persona name to be non-empty")
	}
	if user1.Color == "" {
		t.Error("Expected persona color to be non-empty")
	}
	if user1.ID != "conn-1" {
		t.Errorf("Expected user bound to connection id, got %s", user1.ID)
	}

	// Test 2: Uniqueness
	user2 := pg.Generate("conn-2")
	if user1.Name == user2.Name {
		t.Error("Expected unique persona names", user1.Name, user2.Name)
	}
}

func TestPersonaGenerator_Format(t *testing.T) {
	pg := NewPersonaGenerator()
	user := pg.Generate("c")

	if !strings.HasPrefix(user.Name, "User") {
		t.Errorf("Expected name format 'User####', got: %s", user.Name)
	}
}

func TestPersonaGenerator_PaletteColor(t *testing.T) {
	pg := NewPersonaGenerator()
	user := pg.Generate("c")

	found := false
	for _, c := range paletteColors {
		if c == user.Color {
			found = true
		}
	}
	if !found {
		t.Errorf("Color %s is not from the palette", user.Color)
	}
}

func TestPersonaGenerator_Release(t *testing.T) {
	pg := NewPersonaGenerator()

	user := pg.Generate("c")
	name := user.Name

	if !pg.existing[name] {
		t.Error("Expected name to be marked as existing")
	}

	pg.Release(name)

	if pg.existing[name] {
		t.Error("Expected name to be released (removed from map)")
	}
}

func TestPersonaGenerator_Reserve(t *testing.T) {
	pg := NewPersonaGenerator()

	if !pg.Reserve("Alice") {
		t.Error("Expected first reservation to succeed")
	}
	if pg.Reserve("Alice") {
		t.Error("Expected duplicate reservation to fail")
	}

	pg.Release("Alice")
	if !pg.Reserve("Alice") {
		t.Error("Expected reservation after release to succeed")
	}
}

func TestPersonaGenerator_Concurrency(t *testing.T) {
	pg := NewPersonaGenerator()

	done := make(chan bool)
	for i := 0; i < 100; i++ {
		go func() {
			pg.Generate("c")
			done <- true
		}()
	}

	for i := 0; i < 100; i++ {
		<-done
	}

	if pg.ActiveCount() != 100 {
		t.Errorf("Expected 100 existing names, got %d", pg.ActiveCount())
	}
}
