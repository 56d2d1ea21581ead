package weights

import (
	"github.com/auracore/styleforge/internal/database/enum"
	"github.com/auracore/styleforge/pkg/utils"
)

// learningRate is the fixed step size the update rule applies toward the
// observed reward.
const learningRate = 0.1

// rewardTable is the fixed per-feedback-type reward. view's reward
// depends on time_viewed_ms and is computed separately.
var rewardTable = map[enum.FeedbackType]float64{
	enum.FeedbackTypeGenerateSimilar: 1.5,
	enum.FeedbackTypeShare:           1.2,
	enum.FeedbackTypeSave:            1.0,
	enum.FeedbackTypeLike:            1.0,
	enum.FeedbackTypeDislike:         -0.5,
	enum.FeedbackTypeDelete:          -1.0,
}

// Reward computes the reward contributed by one feedback event.
func Reward(feedbackType enum.FeedbackType, timeViewedMS *int64) float64 {
	if feedbackType == enum.FeedbackTypeView {
		if timeViewedMS != nil && *timeViewedMS >= 3000 {
			return 0.2
		}
		return 0
	}

	return rewardTable[feedbackType]
}

// ApplyUpdate computes a TokenWeight's next weight from its current value
// and an observed reward, per the fixed update rule.
func ApplyUpdate(currentWeight, reward float64) float64 {
	return utils.ClampTokenWeight(currentWeight + learningRate*(reward-currentWeight))
}
