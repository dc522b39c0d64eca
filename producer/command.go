package producer

import (
	"fmt"
	"regexp"

	"github.com/NMBawiskar/ros-data-publisher/errors"
)

// topicPattern matches absolute topic names: slash-separated segments of
// word characters, e.g. /robot/position.
var topicPattern = regexp.MustCompile(`^(/[A-Za-z_][A-Za-z0-9_]*)+$`)

// ValidateTopic checks that name is a well-formed absolute topic name.
func ValidateTopic(name string) error {
	if !topicPattern.MatchString(name) {
		return errors.WrapInvalid(
			fmt.Errorf("malformed topic name %q", name),
			"producer", "ValidateTopic", "topic validation failed")
	}
	return nil
}

// ResolveCommand builds the child process argv from the configured
// command template with the topic name appended as the final argument.
// The template is copied so callers can reuse it across streams.
func ResolveCommand(template []string, topic string) ([]string, error) {
	if len(template) == 0 {
		return nil, errors.WrapInvalid(
			fmt.Errorf("empty command template"),
			"producer", "ResolveCommand", "command resolution failed")
	}
	if err := ValidateTopic(topic); err != nil {
		return nil, err
	}

	argv := make([]string, 0, len(template)+1)
	argv = append(argv, template...)
	argv = append(argv, topic)
	return argv, nil
}
