package config

import (
	"flag"
	"strconv"
)

type uint32Value uint32

func (v *uint32Value) Set(s string) error {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return err
	}
	*v = uint32Value(n)
	return nil
}

func (v *uint32Value) String() string { return strconv.FormatUint(uint64(*v), 10) }

func uint32Var(fs *flag.FlagSet, p *uint32, name string, value uint32, usage string) {
	*p = value
	fs.Var((*uint32Value)(p), name, usage)
}
