package models

import (
	"fmt"
)

// Stack output keys. External tooling looks values up by these exact names.
const (
	OutputQueueURL         = "QueueUrl"
	OutputQueueHandlerName = "QueueHandlerName"
	OutputTopicArn         = "TopicArn"
)

// OutputKeys lists every key the stack exports, in export order.
var OutputKeys = []string{OutputQueueURL, OutputQueueHandlerName, OutputTopicArn}

// StackOutputs holds the resolved outputs of a deployed stack
type StackOutputs struct {
	QueueURL         string `json:"QueueUrl"`
	QueueHandlerName string `json:"QueueHandlerName"`
	TopicArn         string `json:"TopicArn"`
}

// OutputsFromMap resolves StackOutputs from a key/value output listing.
// Every key must be present with a non-empty string value.
func OutputsFromMap(values map[string]any) (StackOutputs, error) {
	lookup := func(key string) (string, error) {
		raw, ok := values[key]
		if !ok {
			return "", fmt.Errorf("stack output %q not found", key)
		}
		value, ok := raw.(string)
		if !ok {
			return "", fmt.Errorf("stack output %q is %T, want string", key, raw)
		}
		if value == "" {
			return "", fmt.Errorf("stack output %q is empty", key)
		}
		return value, nil
	}

	var out StackOutputs
	var err error
	if out.QueueURL, err = lookup(OutputQueueURL); err != nil {
		return StackOutputs{}, err
	}
	if out.QueueHandlerName, err = lookup(OutputQueueHandlerName); err != nil {
		return StackOutputs{}, err
	}
	if out.TopicArn, err = lookup(OutputTopicArn); err != nil {
		return StackOutputs{}, err
	}
	return out, nil
}

// LogGroupPrefix returns the log group prefix holding the handler's logs under root,
// e.g. "/aws/lambda/<QueueHandlerName>".
func (o StackOutputs) LogGroupPrefix(root string) string {
	return fmt.Sprintf("%s/%s", root, o.QueueHandlerName)
}

// Map returns the outputs keyed by their export names.
func (o StackOutputs) Map() map[string]string {
	return map[string]string{
		OutputQueueURL:         o.QueueURL,
		OutputQueueHandlerName: o.QueueHandlerName,
		OutputTopicArn:         o.TopicArn,
	}
}
