// SPDX-License-Identifier: EPL-2.0

package formats

import "errors"

var ErrUnknownFormat = errors.New("unknown output format")
