package profile

import "github.com/auracore/styleforge/internal/database/enum"

// GenderPhrase is the fixed template text injected at prompt position 8
// for one gender presentation choice.
type GenderPhrase struct {
	Presentation string
	Phrase       string
}

var (
	femalePhrase   = GenderPhrase{Presentation: "female", Phrase: "stunning female model, elegant pose, feminine silhouette"}
	malePhrase     = GenderPhrase{Presentation: "male", Phrase: "stunning male model, strong presence, masculine bearing"}
	diversePhrase  = GenderPhrase{Presentation: "diverse", Phrase: "diverse models, mixed gender representation, inclusive casting"}
)

// ResolveGenderPhrase arbitrates the model-gender setting: auto uses the
// detected gender, female/male are fixed, both alternates by
// generation_index parity, and a missing detected gender always falls
// back to the diverse phrase.
func ResolveGenderPhrase(pref ModelGenderState, generationIndex int) GenderPhrase {
	switch pref.Setting {
	case enum.ModelGenderSettingFemale:
		return femalePhrase
	case enum.ModelGenderSettingMale:
		return malePhrase
	case enum.ModelGenderSettingBoth:
		if generationIndex%2 == 0 {
			return femalePhrase
		}
		return malePhrase
	case enum.ModelGenderSettingAuto:
		return resolveFromDetected(pref.DetectedGender)
	default:
		return resolveFromDetected(pref.DetectedGender)
	}
}

// ModelGenderState is the subset of StyleProfile.model_gender_preference
// the arbiter reads.
type ModelGenderState struct {
	Setting        enum.ModelGenderSetting
	DetectedGender *enum.GenderPresentation
}

func resolveFromDetected(detected *enum.GenderPresentation) GenderPhrase {
	if detected == nil {
		return diversePhrase
	}

	switch *detected {
	case enum.GenderPresentationFeminine:
		return femalePhrase
	case enum.GenderPresentationMasculine:
		return malePhrase
	default:
		return diversePhrase
	}
}
