package compiler

// TraitPredicate decides whether an attribute name belongs to the
// classification (trait) domain. Touching such an attribute triggers the
// trait re-processing pass.
type TraitPredicate func(name string) bool

// TraitDomain is anything that can answer the trait membership test, such
// as a *registry.Registry.
type TraitDomain interface {
	IsTraitAttribute(name string) bool
}

// NoTraits treats every attribute as an ordinary property.
func NoTraits(string) bool { return false }

// TraitSet returns a predicate matching exactly the given names.
func TraitSet(names ...string) TraitPredicate {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

// AnyTrait combines predicates; a name is a trait attribute if any of them
// says so.
func AnyTrait(preds ...TraitPredicate) TraitPredicate {
	return func(name string) bool {
		for _, p := range preds {
			if p != nil && p(name) {
				return true
			}
		}
		return false
	}
}
