// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
)

// enumerate runs the count then fill idiom of a driver call. It never returns
// a partially filled slice together with an error.
func enumerate[T any](name string, call func(count *uint32, out []T) error) ([]T, error) {
	var count uint32
	if err := call(&count, nil); err != nil {
		log.WithFields(log.Fields{
			"func": name,
			"step": "count",
		}).Error(err)
		return nil, errors.Wrapf(err, "%s(count)", name)
	}
	if count == 0 {
		return nil, nil
	}

	out := make([]T, count)
	if err := call(&count, out); err != nil {
		log.WithFields(log.Fields{
			"func":  name,
			"step":  "fill",
			"count": count,
		}).Error(err)
		return nil, errors.Wrapf(err, "%s(fill)", name)
	}
	return out[:count], nil
}
