package animator

import (
	"log"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

// AnimatorBuilderOption is a functional option for configuring an Animator during construction.
type AnimatorBuilderOption func(*animator)

// WithModel is an option builder that assigns the Model whose textures the Animator binds.
//
// Parameters:
//   - m: the Model to associate with this animator
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the model option to an animator
func WithModel(m model.Model) AnimatorBuilderOption {
	return func(a *animator) {
		a.model = m
	}
}

// WithMaxInstances is an option builder that sets the maximum number of instances the Animator can manage.
// It also sizes the playback buffer.
//
// Parameters:
//   - maxInstances: the maximum number of instances to support
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the max instances option to an animator
func WithMaxInstances(maxInstances int) AnimatorBuilderOption {
	return func(a *animator) {
		if maxInstances > 0 {
			a.maxInstances = uint32(maxInstances)
		}
	}
}

// WithTrackGroup sets the bind group index of the animation textures. Unless WithPlaybackGroup is
// given, the playback buffer uses the next group.
//
// Parameters:
//   - group: the bind group index
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the track group option to an animator
func WithTrackGroup(group uint32) AnimatorBuilderOption {
	return func(a *animator) {
		a.textureGroup = group
	}
}

// WithPlaybackGroup sets the bind group index of the playback buffer.
//
// Parameters:
//   - group: the bind group index
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the playback group option to an animator
func WithPlaybackGroup(group uint32) AnimatorBuilderOption {
	return func(a *animator) {
		a.playbackGroup = group
		a.playbackGroupSet = true
	}
}

// WithLoop sets whether new instances loop their track.
//
// Parameters:
//   - loop: true to wrap at the end of the track
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the loop option to an animator
func WithLoop(loop bool) AnimatorBuilderOption {
	return func(a *animator) {
		a.defaultLoop = loop
	}
}

// WithLogger sets the logger used for bind output.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the logger option to an animator
func WithLogger(logger *log.Logger) AnimatorBuilderOption {
	return func(a *animator) {
		a.logger = logger
	}
}
