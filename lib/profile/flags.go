// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package profile

import (
	"os"

	"github.com/datawire/dlib/derror"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// session is every profile that has been started from flags.
type session struct {
	stops []StopFunc
}

// Stop stops every started profile, in reverse order of starting.
func (s *session) Stop() error {
	var errs derror.MultiError
	for i := len(s.stops) - 1; i >= 0; i-- {
		if err := s.stops[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.stops = nil
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type flagValue struct {
	sess     *session
	start    startFunc
	filename string
}

var _ pflag.Value = (*flagValue)(nil)

func (fv *flagValue) String() string { return fv.filename }

func (*flagValue) Type() string { return "filename" }

// Set opens the file and starts the profile immediately, so that it
// covers everything after argument parsing.
func (fv *flagValue) Set(filename string) error {
	if filename == "" {
		return nil
	}
	fh, err := os.Create(filename)
	if err != nil {
		return err
	}
	stop, err := fv.start(fh)
	if err != nil {
		_ = fh.Close()
		return err
	}
	fv.filename = filename
	fv.sess.stops = append(fv.sess.stops, func() error {
		err := stop()
		if closeErr := fh.Close(); err == nil {
			err = closeErr
		}
		return err
	})
	return nil
}

// AddProfileFlags adds a "{prefix}{kind}=FILE" flag for each
// supported profile, and returns the function to call at shutdown to
// finish writing whichever of them were requested.
func AddProfileFlags(flags *pflag.FlagSet, prefix string) StopFunc {
	sess := new(session)
	for _, k := range kinds {
		flags.Var(&flagValue{sess: sess, start: k.start}, prefix+k.name, k.usage)
		_ = cobra.MarkFlagFilename(flags, prefix+k.name)
	}
	return sess.Stop
}
