package client

import (
	"fmt"

	"github.com/reichert621/instachat/internal/common"
)

var (
	ErrUnavailable = fmt.Errorf("%w: store unavailable", common.ErrStoreTransport)
	ErrRejected    = fmt.Errorf("%w: request rejected by store", common.ErrStoreTransport)
	ErrClosed      = fmt.Errorf("%w: client closed", common.ErrStoreTransport)
)
