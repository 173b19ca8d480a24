package service

import "errors"

// Every error returned by AuthGate and PostService wraps exactly one of these.
var (
	// ErrUnauthenticated - no credential supplied
	ErrUnauthenticated = errors.New("требуется аутентификация")

	// ErrInvalidCredential - credential present but malformed, expired or mis-signed
	ErrInvalidCredential = errors.New("недействительный токен")

	// ErrInvalidInput - request violates a post or comment invariant
	ErrInvalidInput = errors.New("неверные данные")

	// ErrNotFound - referenced post does not exist
	ErrNotFound = errors.New("пост не найден")

	// ErrConflict - concurrent writes kept winning until the retry bound ran out
	ErrConflict = errors.New("конфликт параллельного изменения поста")

	// ErrStoreUnavailable - store timed out or failed
	ErrStoreUnavailable = errors.New("хранилище недоступно")
)
