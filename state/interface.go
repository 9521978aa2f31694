package state

type Reader interface {
	GetLast(key string) ([]byte, bool)
}

type Writer interface {
	Set(ord uint64, key string, value []byte)
	Del(ord uint64, key string)
}
