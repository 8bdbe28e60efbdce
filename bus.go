package magsense

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// AddressableWriteReader writes out and reads into in as one bus transaction
// (repeated start, no stop in between). Register burst reads rely on it.
type AddressableWriteReader interface {
	WriteReadFromAddr(ctx context.Context, address byte, out []byte, in []byte) error
}

// I2CBus is the synchronous transaction capability every driver in this module
// is built on. Calls are blocking and fail atomically; implementations are not
// required to be safe for concurrent use.
type I2CBus interface {
	AddressableReader
	AddressableWriter
	AddressableWriteReader
}
