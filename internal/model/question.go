package model

type QuestionType string

const (
	SingleChoice QuestionType = "single_choice"
	Numeric      QuestionType = "numeric"
)

// Question 题库试题，采用三参数Logistic模型刻画。
// 由内容导入工具创建，引擎侧只读。
// swagger:model Question
type Question struct {
	BaseModel
	Subject    string       `gorm:"size:100;index:idx_subject_chapter;not null" json:"subject"`
	ChapterKey string       `gorm:"size:100;index:idx_subject_chapter" json:"chapterKey"`
	Type       QuestionType `gorm:"size:20;not null" json:"type"`
	Stem       string       `gorm:"type:text" json:"stem"`
	Options    StringList   `gorm:"type:json" json:"options"`

	// 单选题答案为选项标识；数值题用 [AnswerMin, AnswerMax] 闭区间判定
	CorrectAnswer string   `gorm:"size:255" json:"correctAnswer"`
	AnswerMin     *float64 `json:"answerMin,omitempty"`
	AnswerMax     *float64 `json:"answerMax,omitempty"`

	// IRT 3PL 参数，约束 DiscriminationA > 0，0 <= GuessingC < 1
	DiscriminationA float64 `gorm:"not null" json:"discriminationA"`
	DifficultyB     float64 `gorm:"not null" json:"difficultyB"`
	GuessingC       float64 `gorm:"not null" json:"guessingC"`

	Enabled bool `gorm:"default:true" json:"enabled"`
}

func (Question) TableName() string {
	return "questions"
}

// ParamsValid 校验3PL参数是否可用于能力更新
func (q *Question) ParamsValid() bool {
	return q.DiscriminationA > 0 && q.GuessingC >= 0 && q.GuessingC < 1
}
