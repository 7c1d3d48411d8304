package sheets

import "errors"

var ErrMissingID = errors.New("row has no transaction id")
