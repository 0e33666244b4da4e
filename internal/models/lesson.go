package models

// Lesson — один проанализированный урок. Запись неизменяема после
// создания и всегда принадлежит ровно одному студенту.
type Lesson struct {
	ID        string     `json:"id"`
	StudentID string     `json:"studentId"`
	Date      int64      `json:"date"`
	Data      LessonData `json:"data"`
}

// LessonData — структурированный результат анализа записи урока.
// Форма повторяет схему ответа модели один в один; сервис относится к
// значению как к непрозрачному.
type LessonData struct {
	Summary         string              `json:"summary"`
	Vocabulary      []VocabularyItem    `json:"vocabulary"`
	Mistakes        []MistakeCorrection `json:"mistakes"`
	Exercises       []Exercise          `json:"exercises"`
	NextLessonIdeas []string            `json:"nextLessonIdeas"`
}

type VocabularyItem struct {
	Polish  string `json:"polish"`
	Russian string `json:"russian"`
	Example string `json:"example"`
}

type MistakeCorrection struct {
	Incorrect   string `json:"incorrect"`
	Correct     string `json:"correct"`
	Explanation string `json:"explanation"`
}

type Exercise struct {
	Type        string   `json:"type"`
	Instruction string   `json:"instruction"`
	Questions   []string `json:"questions"`
}
