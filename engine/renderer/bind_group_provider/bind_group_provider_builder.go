package bind_group_provider

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithKind sets which resources the provider holds. The Renderer refuses to store mesh buffers
// or textures on a provider of another kind.
//
// Parameters:
//   - kind: the provider kind
//
// Returns:
//   - BindGroupProviderOption: a function that sets the provider kind
func WithKind(kind ProviderKind) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.kind = kind
	}
}
