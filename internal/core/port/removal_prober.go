package port

import "context"

// RemovalProberPort определяет, снято ли объявление с публикации.
// Сетевая ошибка возвращается как err и не считается признаком удаления.
type RemovalProberPort interface {
	IsRemoved(ctx context.Context, url string) (bool, error)
}
