package objectkey

// RecipeImagePrefix is prepended to the recipe UUID to form the storage key
const RecipeImagePrefix = "recipeImage_"

// Generator defines the interface for object key generation strategies
type Generator interface {
	// GenerateKey creates the storage key for a recipe's image
	GenerateKey(recipeUUID string) string
}

// RecipeImageGenerator produces flat keys of the form "recipeImage_<uuid>".
// The UUID is used verbatim: no escaping, hashing or sharding is applied, so
// callers must only pass identifiers that are already safe as a path segment.
type RecipeImageGenerator struct {
	// Prefix overrides RecipeImagePrefix when non-empty
	Prefix string
}

func NewRecipeImageGenerator() *RecipeImageGenerator {
	return &RecipeImageGenerator{Prefix: RecipeImagePrefix}
}

func (g *RecipeImageGenerator) GenerateKey(recipeUUID string) string {
	prefix := g.Prefix
	if prefix == "" {
		prefix = RecipeImagePrefix
	}
	return prefix + recipeUUID
}

// NamespacedGenerator places keys from a base generator under a directory,
// e.g. "staging/recipeImage_<uuid>". Used to share one bucket between
// environments.
type NamespacedGenerator struct {
	BaseGenerator Generator
	Namespace     string
}

func NewNamespacedGenerator(namespace string) *NamespacedGenerator {
	return &NamespacedGenerator{
		BaseGenerator: NewRecipeImageGenerator(),
		Namespace:     namespace,
	}
}

func (g *NamespacedGenerator) GenerateKey(recipeUUID string) string {
	key := g.BaseGenerator.GenerateKey(recipeUUID)
	if g.Namespace == "" {
		return key
	}
	return g.Namespace + "/" + key
}
