package service

import "errors"

var (
	// ErrRoomNotFound 房间编号不存在
	ErrRoomNotFound = errors.New("room not found")
	// ErrInvalidStatus 未知的隐患状态
	ErrInvalidStatus = errors.New("invalid hazard status")
	// ErrInvalidRoom 房间参数不合法（类型、名称或答案）
	ErrInvalidRoom = errors.New("invalid room")
	// ErrInvalidQuestion 问题编号超出目录范围
	ErrInvalidQuestion = errors.New("invalid question")
)
