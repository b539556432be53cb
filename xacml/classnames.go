package xacml

// Class-name strings are the Hessian Map type-name for each policy entity.
// They are wire-exact: changing them breaks interoperability with the
// remote policy decision service, so they are never derived or computed.
const (
	ClassAttribute           = "org.glite.authz.common.model.Attribute"
	ClassSubject              = "org.glite.authz.common.model.Subject"
	ClassResource             = "org.glite.authz.common.model.Resource"
	ClassAction               = "org.glite.authz.common.model.Action"
	ClassEnvironment          = "org.glite.authz.common.model.Environment"
	ClassRequest              = "org.glite.authz.common.model.Request"
	ClassResponse             = "org.glite.authz.common.model.Response"
	ClassResult               = "org.glite.authz.common.model.Result"
	ClassStatus               = "org.glite.authz.common.model.Status"
	ClassStatusCode           = "org.glite.authz.common.model.StatusCode"
	ClassObligation           = "org.glite.authz.common.model.Obligation"
	ClassAttributeAssignment  = "org.glite.authz.common.model.AttributeAssignment"
)

// Field-key strings used inside each class's Hessian Map.
const (
	keyID                   = "id"
	keyDataType             = "dataType"
	keyIssuer               = "issuer"
	keyValues               = "values" // Attribute's values list; also the legacy AttributeAssignment key
	keyCategory             = "category"
	keyAttributes           = "attributes"
	keyResourceContent      = "resourceContent"
	keySubjects             = "subjects"
	keyResources            = "resources"
	keyAction               = "action"
	keyEnvironment          = "environment"
	keyCode                 = "code"
	keySubCode              = "subCode"
	keyMessage              = "message"
	keyStatusCode           = "statusCode"
	keyAttributeID          = "attributeId"
	keyValue                = "value"
	keyFulfillOn            = "fulfillOn"
	keyAttributeAssignments = "attributeAssignments"
	keyDecision             = "decision"
	keyResourceID           = "resourceId"
	keyStatus               = "status"
	keyObligations          = "obligations"
	keyRequest              = "request"
	keyResults              = "results"
)
