package cache

type hitResult[T any] struct {
	data T
	// The entry holds data set by the creator
	valid bool
	// The caller now owns the entry and must set or delete it
	claimed bool
}

type Cache[T any] interface {
	getOrClaim(key string) hitResult[T]
	set(key string, data T)
	delete(key string)
	wait()
}
