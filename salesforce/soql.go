package salesforce

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	apperrors "github.com/jrsteele09/go-field-analyzer/internal/errors"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ActiveFlowsQuery lists every active autolaunched or screen flow in the org.
// It is not filtered by field.
const ActiveFlowsQuery = "SELECT Id, ActiveVersion.MasterLabel, ActiveVersion.ApiName, " +
	"ActiveVersion.Description, ActiveVersion.VersionNumber FROM FlowDefinition " +
	"WHERE ActiveVersion.ProcessType = 'Flow' AND ActiveVersion.Status = 'Active'"

// NonTabularReportsQuery lists every summary, matrix and joined report in the org.
// It is not filtered by field.
const NonTabularReportsQuery = "SELECT Id, Name, DeveloperName, CreatedDate, LastModifiedDate " +
	"FROM Report WHERE Format != 'Tabular'"

// ValidateIdentifier rejects names that cannot be placed verbatim in a query.
func ValidateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return errors.Wrapf(apperrors.ErrInvalidIdentifier, "%q", name)
	}
	return nil
}

func validateIdentifiers(names ...string) error {
	for _, n := range names {
		if err := ValidateIdentifier(n); err != nil {
			return err
		}
	}
	return nil
}

// quote renders a SOQL string literal.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}

// SplitFieldName separates a custom field API name into namespace prefix and
// developer name: "ns__Score__c" is ("ns", "Score"), "Score__c" is ("", "Score").
func SplitFieldName(fieldName string) (namespace, developerName string) {
	base := strings.TrimSuffix(fieldName, "__c")
	if i := strings.Index(base, "__"); i > 0 {
		return base[:i], base[i+2:]
	}
	return "", base
}

// FieldMetadataQuery selects the Tooling CustomField row of one field.
func FieldMetadataQuery(objectName, fieldName string) (string, error) {
	if err := validateIdentifiers(objectName, fieldName); err != nil {
		return "", err
	}
	namespace, developerName := SplitFieldName(fieldName)

	nsClause := "NamespacePrefix = null"
	if namespace != "" {
		nsClause = "NamespacePrefix = " + quote(namespace)
	}
	return fmt.Sprintf("SELECT Id, DeveloperName, MasterLabel, CreatedDate, CreatedBy.Name, "+
		"LastModifiedDate, LastModifiedBy.Name FROM CustomField "+
		"WHERE EntityDefinition.QualifiedApiName = %s AND DeveloperName = %s AND %s",
		quote(objectName), quote(developerName), nsClause), nil
}

// ObjectLayoutsQuery lists the page layouts of an object.
func ObjectLayoutsQuery(objectName string) (string, error) {
	if err := ValidateIdentifier(objectName); err != nil {
		return "", err
	}
	return fmt.Sprintf("SELECT Id, Name, TableEnumOrId FROM Layout WHERE TableEnumOrId = %s", quote(objectName)), nil
}

// LayoutMetadataQuery selects the metadata of one named layout. Tooling only returns
// Metadata when the query yields a single row.
func LayoutMetadataQuery(objectName, layoutName string) (string, error) {
	if err := ValidateIdentifier(objectName); err != nil {
		return "", err
	}
	return fmt.Sprintf("SELECT Metadata FROM Layout WHERE Name = %s AND TableEnumOrId = %s LIMIT 1",
		quote(layoutName), quote(objectName)), nil
}

// CountQuery counts every record of an object.
func CountQuery(objectName string) (string, error) {
	if err := ValidateIdentifier(objectName); err != nil {
		return "", err
	}
	return "SELECT COUNT() FROM " + objectName, nil
}

// PopulatedCountQuery counts the records of an object where fieldName is set.
func PopulatedCountQuery(objectName, fieldName string) (string, error) {
	if err := validateIdentifiers(objectName, fieldName); err != nil {
		return "", err
	}
	return fmt.Sprintf("SELECT COUNT() FROM %s WHERE %s != null", objectName, fieldName), nil
}
