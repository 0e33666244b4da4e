package models

// Student — ученик преподавателя. Пароль хранится в открытом виде и
// сравнивается на равенство при входе; это осознанное ограничение
// исходного дизайна (известная дыра в безопасности, не исправляем).
// CreatedAt и прочие временные метки — Unix-миллисекунды, чтобы
// сохранённые записи совпадали по формату с историческими данными.
type Student struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Password  string `json:"password"`
	Notes     string `json:"notes"`
	CreatedAt int64  `json:"createdAt"`
}
