package objectkey

import (
	"testing"
)

func TestRecipeImageGenerator(t *testing.T) {
	gen := NewRecipeImageGenerator()

	tests := []struct {
		name       string
		recipeUUID string
		expected   string
	}{
		{"plain id", "recipe-123", "recipeImage_recipe-123"},
		{"uuid", "123e4567-e89b-12d3-a456-426614174000", "recipeImage_123e4567-e89b-12d3-a456-426614174000"},
		{"not escaped", "a/b c", "recipeImage_a/b c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := gen.GenerateKey(tt.recipeUUID)
			if result != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestRecipeImageGenerator_ZeroValue(t *testing.T) {
	var gen RecipeImageGenerator
	if got := gen.GenerateKey("x"); got != "recipeImage_x" {
		t.Errorf("expected default prefix, got %s", got)
	}
}

func TestNamespacedGenerator(t *testing.T) {
	tests := []struct {
		namespace string
		expected  string
	}{
		{"", "recipeImage_recipe-1"},
		{"staging", "staging/recipeImage_recipe-1"},
	}

	for _, tt := range tests {
		t.Run(tt.namespace, func(t *testing.T) {
			gen := NewNamespacedGenerator(tt.namespace)
			if got := gen.GenerateKey("recipe-1"); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}
