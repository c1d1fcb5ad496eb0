package repository

// 存储键（与旧版客户端持久化数据兼容）
const (
	KeyPersonalInfo = "personalInfo"
	KeyMyRooms      = "myRooms"
	KeyFirstLoad    = "firstLoad"
)
