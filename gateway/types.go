package gateway

import (
	"fmt"

	"github.com/NMBawiskar/ros-data-publisher/errors"
	"github.com/NMBawiskar/ros-data-publisher/producer"
)

// Topic describes one streamable topic and its message type.
type Topic struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Catalog is the set of topics clients may subscribe to. Lookup is by
// exact name; listing preserves the configured order.
type Catalog struct {
	topics []Topic
	byName map[string]Topic
}

// NewCatalog builds a catalog from the configured topics. Names must be
// well-formed and unique, and every topic needs a message type.
func NewCatalog(topics []Topic) (*Catalog, error) {
	if len(topics) == 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Catalog", "NewCatalog",
			"at least one topic is required")
	}

	c := &Catalog{
		topics: make([]Topic, 0, len(topics)),
		byName: make(map[string]Topic, len(topics)),
	}
	for _, topic := range topics {
		if err := producer.ValidateTopic(topic.Name); err != nil {
			return nil, err
		}
		if topic.Type == "" {
			return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Catalog", "NewCatalog",
				fmt.Sprintf("topic %s has no message type", topic.Name))
		}
		if _, exists := c.byName[topic.Name]; exists {
			return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Catalog", "NewCatalog",
				fmt.Sprintf("duplicate topic %s", topic.Name))
		}
		c.topics = append(c.topics, topic)
		c.byName[topic.Name] = topic
	}
	return c, nil
}

// Lookup returns the topic with the given name.
func (c *Catalog) Lookup(name string) (Topic, bool) {
	topic, ok := c.byName[name]
	return topic, ok
}

// List returns the topics in configured order. The returned slice is a
// copy.
func (c *Catalog) List() []Topic {
	out := make([]Topic, len(c.topics))
	copy(out, c.topics)
	return out
}

// Len returns the number of topics in the catalog.
func (c *Catalog) Len() int {
	return len(c.topics)
}
