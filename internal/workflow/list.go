package workflow

// ListState ветка отображения списка.
type ListState string

const (
	ListReady ListState = "ready"
	ListEmpty ListState = "empty"
	ListError ListState = "error"
)

// ListView результат загрузки списка. Пустой список и ошибка различаются явно.
type ListView[T any] struct {
	Items []T       `json:"items"`
	State ListState `json:"state"`
	Error string    `json:"error,omitempty"`
}

// Loaded представление успешно загруженного списка.
func Loaded[T any](items []T) ListView[T] {
	if items == nil {
		items = []T{}
	}
	if len(items) == 0 {
		return ListView[T]{Items: items, State: ListEmpty}
	}
	return ListView[T]{Items: items, State: ListReady}
}

// Failed представление неудачной загрузки; prior сохраняет ранее показанные элементы.
func Failed[T any](prior []T, reason string) ListView[T] {
	if prior == nil {
		prior = []T{}
	}
	return ListView[T]{Items: prior, State: ListError, Error: reason}
}
