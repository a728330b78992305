package animator

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/Carmen-Shannon/oxy-anim/engine/renderer"
	"github.com/Carmen-Shannon/oxy-anim/engine/renderer/bind_group_provider"
)

// UploadTextures creates the model's animation textures on the GPU at their fixed units and stores
// them on a new texture provider set on the model. Any previous texture provider is released.
// The textures are immutable afterwards; a changed model needs a new upload.
//
// Parameters:
//   - r: the renderer owning the device
//   - m: the model whose encoded textures are uploaded
//
// Returns:
//   - error: error if any texture fails to upload, in which case the model keeps no provider
func UploadTextures(r renderer.Renderer, m model.Model) error {
	textures := m.Textures()
	if textures == nil {
		return fmt.Errorf("model %q has no encoded textures", m.Name())
	}

	provider := bind_group_provider.NewBindGroupProvider(m.Name()+" Animation", bind_group_provider.WithKind(bind_group_provider.ProviderKindTextures))

	if err := r.InitTextureView(provider, WeightTextureUnit, textures.BoneWeights); err != nil {
		provider.Release()
		return fmt.Errorf("failed to upload bone weight texture for %q: %w", m.Name(), err)
	}
	if err := r.InitTextureView(provider, BindPoseTextureUnit, textures.BindPose); err != nil {
		provider.Release()
		return fmt.Errorf("failed to upload bind pose texture for %q: %w", m.Name(), err)
	}
	for i, track := range textures.Tracks {
		if err := r.InitTextureView(provider, TrackTextureUnit(i), track); err != nil {
			provider.Release()
			return fmt.Errorf("failed to upload track %d texture for %q: %w", i, m.Name(), err)
		}
	}

	if old := m.TextureProvider(); old != nil {
		old.Release()
	}
	m.SetTextureProvider(provider)
	return nil
}
