package tools

// Self is the name toolsmith reports itself under.
const Self = "toolsmith"

var (
	happy = Spec{Name: "happy", Binary: "happy", VersionArgs: []string{"--version"}, Version: "1.20.1.1"}
	alex  = Spec{Name: "alex", Binary: "alex", VersionArgs: []string{"--version"}, Version: "3.2.7.1"}
)

var primary = []Spec{
	{Name: "hlint", Binary: "hlint", VersionArgs: []string{"--version"}, Version: "3.5", Deps: []Spec{happy, alex}},
	{Name: "stylish-haskell", Binary: "stylish-haskell", VersionArgs: []string{"--version"}, Version: "0.14.4.0", Deps: []Spec{happy}},
	{Name: "ghcid", Binary: "ghcid", VersionArgs: []string{"--version"}, Version: "0.8.8"},
	{Name: "hindent", Binary: "hindent", VersionArgs: []string{"--version"}, Version: "6.0.0", Deps: []Spec{happy}},
}

var auxiliary = []Spec{
	{Name: "hoogle", Binary: "hoogle", VersionArgs: []string{"--version"}, Version: "5.0.18.3"},
	{Name: "ormolu", Binary: "ormolu", VersionArgs: []string{"--version"}, Version: "0.5.3.0", Deps: []Spec{alex, happy}},
	{Name: "apply-refact", Binary: "refactor", VersionArgs: []string{"--version"}, Version: "0.13.0.0"},
}

// Primary returns the primary tools in install order.
func Primary() []Spec {
	return append([]Spec(nil), primary...)
}

// Auxiliary returns the auxiliary tools in install order.
func Auxiliary() []Spec {
	return append([]Spec(nil), auxiliary...)
}

// All returns primary tools followed by auxiliary tools.
func All() []Spec {
	return append(Primary(), Auxiliary()...)
}

// Definition returns the spec for a managed tool or one of their dependencies.
func Definition(name string) (Spec, bool) {
	for _, spec := range All() {
		if spec.Name == name {
			return spec, true
		}
		for _, dep := range spec.Closure() {
			if dep.Name == name {
				return dep, true
			}
		}
	}
	return Spec{}, false
}
