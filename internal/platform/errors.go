package platform

import "codeberg.org/mutker/sleepctl/internal/errors"

const (
	ErrUnknownPlatform = errors.ErrorCode("platform_unknown")
	ErrNotArmed        = errors.ErrorCode("platform_no_wakeup_source")
	ErrUnsupported     = errors.ErrUnsupported
	ErrSysfsAccess     = errors.ErrorCode("platform_sysfs_access_failed")
)
