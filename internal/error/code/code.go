package code

// HTTP状态码.
const (
	// StatusOK - 200: 成功.
	StatusOK = 200
	// StatusBadRequest - 400: 请求参数错误.
	StatusBadRequest = 400
	// StatusUnauthorized - 401: 未授权.
	StatusUnauthorized = 401
	// StatusForbidden - 403: 禁止访问.
	StatusForbidden = 403
	// StatusNotFound - 404: 资源不存在.
	StatusNotFound = 404
	// StatusInternalServerError - 500: 服务器内部错误.
	StatusInternalServerError = 500
	// StatusTooManyRequests - 429: 请求过多.
	StatusTooManyRequests = 429
)

// 通用错误码 (100xxx).
const (
	// ErrSuccess - 200: 成功.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500: 未知错误.
	ErrUnknown
	// ErrBind - 400: 请求参数绑定错误.
	ErrBind
	// ErrValidation - 400: 请求参数验证错误.
	ErrValidation
	// ErrTokenInvalid - 401: 令牌无效.
	ErrTokenInvalid
	// ErrTooManyRequests - 429: 请求频率过高.
	ErrTooManyRequests
	// ErrPermissionDenied - 403: 权限不足.
	ErrPermissionDenied
)

// 用户相关错误码 (101xxx).
const (
	// ErrUserNotFound - 404: 用户不存在.
	ErrUserNotFound int = iota + 101000
	// ErrUserAlreadyExist - 400: 用户已存在.
	ErrUserAlreadyExist
	// ErrUserPasswordIncorrect - 401: 用户密码错误.
	ErrUserPasswordIncorrect
	// ErrUserDisabled - 403: 用户已被停用.
	ErrUserDisabled
)

// 保安相关错误码 (102xxx).
const (
	// ErrGuardNotFound - 404: 保安不存在.
	ErrGuardNotFound int = iota + 102000
	// ErrGuardAlreadyExist - 400: 保安已存在.
	ErrGuardAlreadyExist
	// ErrGuardOffDuty - 400: 保安未在岗.
	ErrGuardOffDuty
)

// 站点与排班相关错误码 (103xxx).
const (
	// ErrSiteNotFound - 404: 站点不存在.
	ErrSiteNotFound int = iota + 103000
	// ErrSiteAlreadyExist - 400: 站点已存在.
	ErrSiteAlreadyExist
	// ErrShiftNotFound - 404: 排班不存在.
	ErrShiftNotFound
	// ErrShiftStatusInvalid - 400: 排班状态非法.
	ErrShiftStatusInvalid
)

// 定位相关错误码 (104xxx).
const (
	// ErrLocationInvalid - 400: 定位坐标非法.
	ErrLocationInvalid int = iota + 104000
	// ErrLocationNotFound - 404: 定位记录不存在.
	ErrLocationNotFound
	// ErrGeofenceEventInvalid - 400: 围栏事件类型非法.
	ErrGeofenceEventInvalid
)

// 紧急警报相关错误码 (105xxx).
const (
	// ErrAlertNotFound - 404: 警报不存在.
	ErrAlertNotFound int = iota + 105000
	// ErrAlertAlreadyResolved - 400: 警报已是终态.
	ErrAlertAlreadyResolved
	// ErrAlertResolutionEmpty - 400: 处置说明不能为空.
	ErrAlertResolutionEmpty
	// ErrAlertTypeInvalid - 400: 警报类型非法.
	ErrAlertTypeInvalid
)

// 数据库相关错误码 (106xxx).
const (
	// ErrDatabase - 500: 数据库错误.
	ErrDatabase int = iota + 106000
	// ErrRecordNotFound - 404: 记录不存在.
	ErrRecordNotFound
)

// 公司相关错误码 (107xxx).
const (
	// ErrCompanyNotFound - 404: 公司不存在.
	ErrCompanyNotFound int = iota + 107000
	// ErrCompanyAlreadyExist - 400: 公司已存在.
	ErrCompanyAlreadyExist
	// ErrCompanyScopeViolation - 403: 跨公司访问被拒绝.
	ErrCompanyScopeViolation
)

// GetMessage 根据错误码获取对应的消息
func GetMessage(errCode int) string {
	if msg, ok := codeMessageMap[errCode]; ok {
		return msg
	}
	return codeMessageMap[ErrUnknown]
}

// GetStatus 根据错误码获取对应的HTTP状态码
func GetStatus(errCode int) int {
	if status, ok := codeStatusMap[errCode]; ok {
		return status
	}
	return StatusInternalServerError
}
