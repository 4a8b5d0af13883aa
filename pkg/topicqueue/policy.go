package topicqueue

import (
	"encoding/json"
)

type policyDocument struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

type policyStatement struct {
	Effect    string         `json:"Effect"`
	Principal map[string]any `json:"Principal,omitempty"`
	Action    []string       `json:"Action"`
	Resource  any            `json:"Resource,omitempty"`
	Condition map[string]any `json:"Condition,omitempty"`
}

func (d policyDocument) String() (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// assumeRolePolicy lets Lambda assume the handler role
func assumeRolePolicy() (string, error) {
	return policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Effect:    "Allow",
			Principal: map[string]any{"Service": "lambda.amazonaws.com"},
			Action:    []string{"sts:AssumeRole"},
		}},
	}.String()
}

// queuePolicy allows the topic, and only the topic, to deliver into the queue
func queuePolicy(queueArn, topicArn string) (string, error) {
	return policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Effect:    "Allow",
			Principal: map[string]any{"Service": "sns.amazonaws.com"},
			Action:    []string{"sqs:SendMessage"},
			Resource:  queueArn,
			Condition: map[string]any{
				"ArnEquals": map[string]string{"aws:SourceArn": topicArn},
			},
		}},
	}.String()
}

// handlerPolicy is the minimal grant for consuming the queue and writing logs
func handlerPolicy(queueArn, logGroupArn string) (string, error) {
	return policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{
			{
				Effect: "Allow",
				Action: []string{
					"sqs:ReceiveMessage",
					"sqs:DeleteMessage",
					"sqs:GetQueueAttributes",
				},
				Resource: queueArn,
			},
			{
				Effect: "Allow",
				Action: []string{
					"logs:CreateLogStream",
					"logs:PutLogEvents",
				},
				Resource: logGroupArn + ":*",
			},
		},
	}.String()
}
