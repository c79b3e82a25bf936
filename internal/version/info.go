package version

import "strings"

// Info is the serialisable view of a Version.
type Info struct {
	Major          uint8  `json:"major" yaml:"major"`
	Minor          uint8  `json:"minor" yaml:"minor"`
	Patch          uint16 `json:"patch" yaml:"patch"`
	Channel        string `json:"channel,omitempty" yaml:"channel,omitempty"`
	CommitDescribe string `json:"commit_describe,omitempty" yaml:"commit_describe,omitempty"`
	CommitDate     string `json:"commit_date,omitempty" yaml:"commit_date,omitempty"`
	Short          string `json:"short" yaml:"short"`
	Long           string `json:"long" yaml:"long"`
}

// Info returns the version with trimmed commit metadata, ready for encoding.
func (v Version) Info() Info {
	channel, _ := v.HostCompiler()
	describe, _ := v.CommitDescribe()
	date, _ := v.CommitDate()
	return Info{
		Major:          v.major,
		Minor:          v.minor,
		Patch:          v.patch,
		Channel:        channel,
		CommitDescribe: strings.TrimSpace(describe),
		CommitDate:     strings.TrimSpace(date),
		Short:          v.Short(),
		Long:           v.Long(),
	}
}
