// Command pep-client-example is a hardcoded demonstration of the pep
// client library: it builds the minimal permit request from the scenario
// catalog, authorizes it against a configured endpoint, and prints the
// decision. It is not part of the core library.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/argus-authz/pep-client-go/internal/logging"
	"github.com/argus-authz/pep-client-go/pep"
	"github.com/argus-authz/pep-client-go/plugin/authzinterop"
	"github.com/argus-authz/pep-client-go/plugin/posix"
	"github.com/argus-authz/pep-client-go/xacml"
)

func main() {
	logging.SetLevel(logging.LevelInfo)

	client, err := pep.NewClient(
		pep.WithEndpointURL("https://pdp.example.org:8154/authz"),
		pep.WithEndpointTimeout(30*time.Second),
		pep.WithEndpointClientCert("/etc/pep/client-cert.pem"),
		pep.WithEndpointClientKey("/etc/pep/client-key.pem"),
		pep.WithEndpointServerCAPath("/etc/grid-security/certificates"),
	)
	if err != nil {
		color.Red("failed to create client: %v", err)
		os.Exit(1)
	}
	defer client.Destroy(context.Background())

	if err := client.RegisterPreProcessor(authzinterop.New()); err != nil {
		color.Red("failed to register authzinterop pre-processor: %v", err)
		os.Exit(1)
	}
	if err := client.RegisterPostProcessor(posix.New()); err != nil {
		color.Red("failed to register posix post-processor: %v", err)
		os.Exit(1)
	}

	req := buildMinimalRequest()

	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Second)
	defer cancel()

	_, resp, err := client.Authorize(ctx, req)
	if err != nil {
		color.Red("authorize failed: %v", err)
		os.Exit(1)
	}

	for _, result := range resp.Results {
		printDecision(result)
	}
}

func buildMinimalRequest() *xacml.Request {
	req := xacml.NewRequest()

	subject := xacml.NewSubject()
	subjectID := xacml.NewAttribute("urn:oasis:names:tc:xacml:1.0:subject:subject-id")
	subjectID.DataType = "urn:oasis:names:tc:xacml:1.0:data-type:x500Name"
	subjectID.AddValue("CN=Alice")
	subject.Attributes = append(subject.Attributes, subjectID)
	req.AddSubject(subject)

	resource := xacml.NewResource()
	resourceID := xacml.NewAttribute("urn:oasis:names:tc:xacml:1.0:resource:resource-id")
	resourceID.AddValue("svc1")
	resource.Attributes = append(resource.Attributes, resourceID)
	req.AddResource(resource)

	action := xacml.NewAction()
	actionID := xacml.NewAttribute("urn:oasis:names:tc:xacml:1.0:action:action-id")
	actionID.AddValue("read")
	action.Attributes = append(action.Attributes, actionID)
	req.Action = action

	return req
}

func printDecision(result *xacml.Result) {
	switch result.Decision {
	case xacml.Permit:
		color.Green("decision: %s", result.Decision)
	case xacml.Deny:
		color.Yellow("decision: %s", result.Decision)
	default:
		color.Red("decision: %s", result.Decision)
	}
	for _, ob := range result.Obligations {
		fmt.Printf("  obligation: %s (fulfillOn=%s)\n", ob.ID, ob.FulfillOn)
	}
}
