package domain

// Policy is the authorizer policy item stored per user group.
type Policy struct {
	Group    string         `dynamodbav:"group" json:"group"`
	Document PolicyDocument `dynamodbav:"policy" json:"policy"`
}

type PolicyDocument struct {
	Version   string      `dynamodbav:"Version" json:"Version"`
	Statement []Statement `dynamodbav:"Statement" json:"Statement"`
}

type Statement struct {
	Sid      string   `dynamodbav:"Sid" json:"Sid"`
	Effect   string   `dynamodbav:"Effect" json:"Effect"`
	Action   string   `dynamodbav:"Action" json:"Action"`
	Resource []string `dynamodbav:"Resource" json:"Resource"`
}

// APIPolicy grants invoke on the status and task routes of the API whose
// execute-api ARN prefix is apiARN (for example
// "arn:aws:execute-api:us-east-1:123456789012:*").
func APIPolicy(group, apiARN string) Policy {
	return Policy{
		Group: group,
		Document: PolicyDocument{
			Version: "2012-10-17",
			Statement: []Statement{{
				Sid:    "Karya-API",
				Effect: "Allow",
				Action: "execute-api:Invoke",
				Resource: []string{
					apiARN + "/*/GET/api/status",
					apiARN + "/*/*/api/tasks*",
					apiARN + "/*/*/api/tasks/*",
				},
			}},
		},
	}
}
