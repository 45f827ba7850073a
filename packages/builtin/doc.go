// Package builtin provides the fake-data generators behind the Faker template
// function.
//
// Descriptors follow the faker.js naming:
//   - name.firstName, name.lastName, name.findName
//   - internet.email, internet.userName, internet.password(length)
//   - random.uuid, random.number(min, max), random.alphaNumeric(length)
//   - address.city, company.companyName, lorem.sentence(words)
//   - date.past, date.future, date.timestamp
//
// Templates call them as <$ Faker "internet.email" $>.
package builtin
