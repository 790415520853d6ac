package code

// 错误码消息映射
var codeMessageMap = map[int]string{
	// 通用错误码
	ErrSuccess:          "成功",
	ErrUnknown:          "未知错误",
	ErrBind:             "请求参数绑定错误",
	ErrValidation:       "请求参数验证错误",
	ErrTokenInvalid:     "无效的认证令牌",
	ErrTooManyRequests:  "请求频率过高",
	ErrPermissionDenied: "权限不足",

	// 用户相关错误码
	ErrUserNotFound:          "用户不存在",
	ErrUserAlreadyExist:      "用户已存在",
	ErrUserPasswordIncorrect: "用户密码错误",
	ErrUserDisabled:          "用户已被停用",

	// 保安相关错误码
	ErrGuardNotFound:     "保安不存在",
	ErrGuardAlreadyExist: "保安已存在",
	ErrGuardOffDuty:      "保安未在岗",

	// 站点与排班相关错误码
	ErrSiteNotFound:       "站点不存在",
	ErrSiteAlreadyExist:   "站点已存在",
	ErrShiftNotFound:      "排班不存在",
	ErrShiftStatusInvalid: "排班状态非法",

	// 定位相关错误码
	ErrLocationInvalid:      "定位坐标非法",
	ErrLocationNotFound:     "定位记录不存在",
	ErrGeofenceEventInvalid: "围栏事件类型非法，必须为enter或exit",

	// 紧急警报相关错误码
	ErrAlertNotFound:        "紧急警报不存在",
	ErrAlertAlreadyResolved: "紧急警报已处于终态，不能再次处置",
	ErrAlertResolutionEmpty: "处置说明不能为空",
	ErrAlertTypeInvalid:     "警报类型非法",

	// 数据库相关错误码
	ErrDatabase:       "数据库错误",
	ErrRecordNotFound: "记录不存在",

	// 公司相关错误码
	ErrCompanyNotFound:       "公司不存在",
	ErrCompanyAlreadyExist:   "公司已存在",
	ErrCompanyScopeViolation: "不允许访问其他公司的数据",
}

// 错误码HTTP状态码映射
var codeStatusMap = map[int]int{
	// 通用错误码
	ErrSuccess:          StatusOK,
	ErrUnknown:          StatusInternalServerError,
	ErrBind:             StatusBadRequest,
	ErrValidation:       StatusBadRequest,
	ErrTokenInvalid:     StatusUnauthorized,
	ErrTooManyRequests:  StatusTooManyRequests,
	ErrPermissionDenied: StatusForbidden,

	// 用户相关错误码
	ErrUserNotFound:          StatusNotFound,
	ErrUserAlreadyExist:      StatusBadRequest,
	ErrUserPasswordIncorrect: StatusUnauthorized,
	ErrUserDisabled:          StatusForbidden,

	// 保安相关错误码
	ErrGuardNotFound:     StatusNotFound,
	ErrGuardAlreadyExist: StatusBadRequest,
	ErrGuardOffDuty:      StatusBadRequest,

	// 站点与排班相关错误码
	ErrSiteNotFound:       StatusNotFound,
	ErrSiteAlreadyExist:   StatusBadRequest,
	ErrShiftNotFound:      StatusNotFound,
	ErrShiftStatusInvalid: StatusBadRequest,

	// 定位相关错误码
	ErrLocationInvalid:      StatusBadRequest,
	ErrLocationNotFound:     StatusNotFound,
	ErrGeofenceEventInvalid: StatusBadRequest,

	// 紧急警报相关错误码
	ErrAlertNotFound:        StatusNotFound,
	ErrAlertAlreadyResolved: StatusBadRequest,
	ErrAlertResolutionEmpty: StatusBadRequest,
	ErrAlertTypeInvalid:     StatusBadRequest,

	// 数据库相关错误码
	ErrDatabase:       StatusInternalServerError,
	ErrRecordNotFound: StatusNotFound,

	// 公司相关错误码
	ErrCompanyNotFound:       StatusNotFound,
	ErrCompanyAlreadyExist:   StatusBadRequest,
	ErrCompanyScopeViolation: StatusForbidden,
}
